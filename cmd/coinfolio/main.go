package main

import "github.com/KANG-Hyeong-uk/coin/internal/cli"

func main() {
	cli.Execute()
}
