//go:build rp2040

package main

import (
	"context"
	"runtime"
	"time"

	"joyled/services/app"
	"joyled/services/hal"
	"joyled/types"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	board, err := hal.Open(types.DefaultBoard())
	if err != nil {
		halt("[main] hal: " + err.Error())
	}

	// Calibration reads the stick as it rests now: keep hands off during boot.
	a, err := app.New(board)
	if err != nil {
		halt("[main] wiring: " + err.Error())
	}
	if err := a.Splash(); err != nil {
		println("[main] splash: " + err.Error())
	}
	time.Sleep(time.Second)

	go memLoop(30 * time.Second)

	println("[main] running")
	if err := a.Run(context.Background()); err != nil {
		halt("[main] run: " + err.Error())
	}
}

// halt parks the firmware with a reason on the console.
func halt(reason string) {
	for {
		println(reason)
		time.Sleep(5 * time.Second)
	}
}

func memLoop(every time.Duration) {
	for {
		time.Sleep(every)
		printMem()
	}
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
// Uses builtin println to avoid fmt overhead/allocations.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"heapSys:", uint32(ms.HeapSys),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
