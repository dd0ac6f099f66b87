package main

import "github.com/iburimskiy/webcam-fx/cmd"

func main() {
	cmd.Execute()
}
