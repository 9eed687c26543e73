package main

import "worktrack/internal/app/server"

func main() {
	server.Run()
}
