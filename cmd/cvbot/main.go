// Package main is the entry point for the cvbot service: a Telegram bot
// that answers questions about its owner's resume, with a startup sequence
// that builds the RAG index and sentinel caches when they are missing.
package main

func main() {
	Execute()
}
