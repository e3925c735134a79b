package main

import "github.com/invincible-jha/agent-benchmark-governance/internal/cli"

func main() {
	cli.Execute()
}
