// Command caesarion is a terminal client for a remote code-execution
// sandbox. It holds a durable session identity, streams conversational
// turns from the backend, renders code cells with their execution outputs,
// and uploads files into the sandbox filesystem.
package main

func main() {
	Execute()
}
