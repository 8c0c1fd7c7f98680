// Package main is the entry point for orientprompt.
package main

func main() {
	Execute()
}
