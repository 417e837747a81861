package main

import "github.com/frahmantamala/school-administration/cmd"

func main() {
	cmd.Execute()
}
