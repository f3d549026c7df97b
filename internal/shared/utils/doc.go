// Package utils holds request validation shared by the HTTP layer.
package utils
