package main

//go:generate echo "Generating templ files..."
//go:generate bash -c "export PATH=$$PATH:~/go/bin && templ generate -path ../views"
//go:generate echo "templ files generated"

// This file contains go:generate directives that turn the .templ views
// into Go code. To regenerate after editing a template, run:
//
// go generate ./...
//
// from the project root directory.
