package main

import (
	"imagefetch/cmd/imagefetch/get"
	"imagefetch/cmd/imagefetch/serve"
)

func init() {
	Registry.FromGetter(get.GetCommand)
	Registry.FromGetter(serve.GetCommand)
}
