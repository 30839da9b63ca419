/*
Copyright © 2024 Dean
*/
package main

import "docqa/cmd"

func main() {
	cmd.Execute()
}
