// Command gridtrace traces phases, feeder directions and connectivity
// through a power network described in a YAML document.
package main

func main() {
	Execute()
}
