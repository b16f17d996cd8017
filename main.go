package main

import (
	_ "time/tzdata"

	"photo-social-backend/cmd"
)

func main() {
	cmd.Run()
}
