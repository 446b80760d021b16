package main

import "github.com/shouni/go-listing-scraper/cmd"

func main() {
	cmd.Execute()
}
