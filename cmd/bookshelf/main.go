package main

import (
	"github.com/nimburion/bookshelf/pkg/app"
	"github.com/nimburion/bookshelf/pkg/cli"
)

func main() {
	cli.Execute(cli.NewServiceCommand(cli.ServiceCommandOptions{
		Name:              "bookshelf",
		Description:       "Book catalog service",
		RunServer:         app.Run,
		CheckDependencies: app.CheckDependencies,
	}))
}
