// Package api holds the black-box HTTP suite. It starts an in-process server
// on the memory driver, or targets API_URL when that is set:
//
//	API_URL=http://localhost:4000 go test ./test/api/...
package api
