package main

import "github.com/GriffinCanCode/AgentOS/scriptenc/internal/cli"

func main() {
	cli.Execute()
}
