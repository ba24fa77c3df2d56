// Command csi compiles a tree of bracket-directive templates into a static
// site.
//
// Usage:
//
//	# Compile src/ into dist/, treating .html and .txt files as templates
//	csi build src dist --ext .html --ext .txt
//
//	# Use a configuration file
//	csi build --config csi.yaml
//
//	# Rebuild whenever a source file changes
//	csi watch src dist
//
//	# Preview templates over HTTP, compiled on every request
//	csi serve src --addr 127.0.0.1:8080
package main

func main() {
	Execute()
}
