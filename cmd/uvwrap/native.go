//go:build uvnative

package main

// Link the native LSCM solver backend into the binary.
import _ "github.com/astitvaaryan/uvwrap/internal/solver/native"
