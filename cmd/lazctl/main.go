package main

import "github.com/carlosrm22/lazaro/cmd/lazctl/arg"

func main() {
	arg.Execute()
}
