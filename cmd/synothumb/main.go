// Command synothumb генерирует миниатюры Synology Photo Station.
package main

import "github.com/artemshloyda/synothumb/internal/cli"

func main() {
	cli.Execute()
}
