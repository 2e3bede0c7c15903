package asm

import (
	"strconv"
	"strings"
	"testing"
)

// smallProgram is a counter loop.
const smallProgram = `
    LD V0, 10
    LD V1, 0
loop:
    ADD V1, V0
    ADD V0, 0xFF
    SE V0, 0
    JP loop
halt:
    JP halt
`

// mediumProgram draws the hex digits across the screen with subroutines
// and sprite data.
const mediumProgram = `
    JP main

draw_digit:
    LD F, V2
    DRW V0, V1, 5
    ADD V0, 5
    RET

next_row:
    LD V0, 0
    ADD V1, 6
    RET

wait_key:
    LD V3, K
    SKP V3
    JP wait_key
    RET

main:
    CLS
    LD V0, 0
    LD V1, 0
    LD V2, 0
digits:
    CALL draw_digit
    ADD V2, 1
    SNE V2, 8
    CALL next_row
    SE V2, 16
    JP digits

    LD I, box
    LD V0, 56
    LD V1, 24
    DRW V0, V1, 4
    LD VA, 60
    LD DT, VA
delay:
    LD VB, DT
    SE VB, 0
    JP delay
    CALL wait_key
    LD I, score
    LD B, V2
    LD V2, [I]
halt:
    JP halt

box:
    DB 0xFF, 0x81, 0x81, 0xFF
score:
    DB 0, 0, 0
`

// largeProgram repeats the medium program body with unique labels.
var largeProgram = func() string {
	var sb strings.Builder
	sb.WriteString("    JP main0\n")
	for i := 0; i < 20; i++ {
		body := strings.NewReplacer(
			"draw_digit", "draw_digit"+strconv.Itoa(i),
			"next_row", "next_row"+strconv.Itoa(i),
			"wait_key", "wait_key"+strconv.Itoa(i),
			"main:", "main"+strconv.Itoa(i)+":",
			"digits", "digits"+strconv.Itoa(i),
			"delay", "delay"+strconv.Itoa(i),
			"halt", "halt"+strconv.Itoa(i),
			"box", "box"+strconv.Itoa(i),
			"score", "score"+strconv.Itoa(i),
			"JP main\n", "",
		).Replace(mediumProgram)
		sb.WriteString(body)
	}
	return sb.String()
}()

func BenchmarkAssemble_Small(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(smallProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Medium(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(mediumProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Large(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, err := Assemble(largeProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}
