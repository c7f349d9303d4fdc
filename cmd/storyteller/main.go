// Command storyteller plays the opening and closing story of the game.
package main

import "github.com/survivalburger/storyteller/internal/cli"

func main() {
	cli.Run()
}
