// Command resttree serves resource trees assembled from service signatures
// and model definitions.
package main

func main() {
	Execute()
}
