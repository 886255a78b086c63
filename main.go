package main

import "github.com/varalys/logsearch/cmd/logsearch"

func main() { logsearch.Execute() }
