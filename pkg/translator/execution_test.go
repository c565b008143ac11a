package translator_test

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hackvm/pkg/asm"
	"hackvm/pkg/cpu"
	"hackvm/pkg/translator"
)

var _ = Describe("Generated code", func() {
	DescribeTable("arithmetic and logic",
		func(src string, want int16) {
			c, _ := runSource(src)
			Expect(c.Stack()).To(Equal([]int16{want}))
		},
		Entry("add", "push constant 7\npush constant 8\nadd", int16(15)),
		Entry("sub", "push constant 10\npush constant 3\nsub", int16(7)),
		Entry("negative sub", "push constant 3\npush constant 10\nsub", int16(-7)),
		Entry("neg", "push constant 3\nneg", int16(-3)),
		Entry("and", "push constant 12\npush constant 10\nand", int16(8)),
		Entry("or", "push constant 12\npush constant 10\nor", int16(14)),
		Entry("not", "push constant 0\nnot", int16(-1)),
		Entry("wrapping add", "push constant 32767\npush constant 1\nadd", int16(-32768)),
	)

	DescribeTable("comparisons",
		func(x, y int, op string, want int16) {
			c, _ := runSource(fmt.Sprintf("push constant %d\npush constant %d\n%s", x, y, op))
			Expect(c.Stack()).To(Equal([]int16{want}))
		},
		Entry("5 eq 5", 5, 5, "eq", int16(-1)),
		Entry("5 eq 6", 5, 6, "eq", int16(0)),
		Entry("7 gt 3", 7, 3, "gt", int16(-1)),
		Entry("3 gt 7", 3, 7, "gt", int16(0)),
		Entry("3 gt 3", 3, 3, "gt", int16(0)),
		Entry("3 lt 7", 3, 7, "lt", int16(-1)),
		Entry("7 lt 3", 7, 3, "lt", int16(0)),
	)

	DescribeTable("comparisons whose difference overflows",
		func(left, right int16, op string, want int16) {
			src := fmt.Sprintf("%s\n%s\n%s", pushInt(left), pushInt(right), op)
			c, _ := runSource(src)
			Expect(c.Stack()).To(Equal([]int16{want}))
		},
		Entry("-20000 gt 20000", int16(-20000), int16(20000), "gt", int16(0)),
		Entry("20000 lt -20000", int16(20000), int16(-20000), "lt", int16(0)),
		Entry("20000 gt -20000", int16(20000), int16(-20000), "gt", int16(-1)),
		Entry("-20000 lt 20000", int16(-20000), int16(20000), "lt", int16(-1)),
		Entry("32767 gt -1", int16(32767), int16(-1), "gt", int16(-1)),
		Entry("-32767 lt 2", int16(-32767), int16(2), "lt", int16(-1)),
		Entry("0 gt -1", int16(0), int16(-1), "gt", int16(-1)),
		Entry("-1 lt 0", int16(-1), int16(0), "lt", int16(-1)),
		Entry("-5 gt -3", int16(-5), int16(-3), "gt", int16(0)),
		Entry("-20000 eq 20000", int16(-20000), int16(20000), "eq", int16(0)),
	)

	It("should compare negative operands", func() {
		c, _ := runSource("push constant 2\nneg\npush constant 1\nlt\npush constant 1\npush constant 2\nneg\ngt")
		Expect(c.Stack()).To(Equal([]int16{-1, -1}))
	})

	DescribeTable("stack depth",
		func(src string, depth int) {
			c, _ := runSource(src)
			Expect(int(c.SP()) - int(cpu.StackBase)).To(Equal(depth))
		},
		Entry("binary", "push constant 1\npush constant 2\nadd", 1),
		Entry("unary", "push constant 1\nneg", 1),
		Entry("comparison", "push constant 1\npush constant 2\neq\npush constant 3", 2),
		Entry("pop", "push constant 1\npop temp 0", 0),
		Entry("if-goto", "push constant 0\nif-goto X\nlabel X", 0),
	)

	DescribeTable("push/pop round trip",
		func(segment string, index int, addr uint16) {
			c, _ := runSource(fmt.Sprintf("push constant 42\npop %s %d\npush %s %d", segment, index, segment, index))
			Expect(c.RAM[addr]).To(Equal(uint16(42)))
			Expect(c.Stack()).To(Equal([]int16{42}))
		},
		Entry("local", "local", 2, uint16(testLCL+2)),
		Entry("argument", "argument", 1, uint16(testARG+1)),
		Entry("this", "this", 0, uint16(testTHIS)),
		Entry("that", "that", 5, uint16(testTHAT+5)),
		Entry("temp 3", "temp", 3, uint16(8)),
		Entry("temp 7", "temp", 7, uint16(12)),
		Entry("pointer 0", "pointer", 0, uint16(3)),
		Entry("pointer 1", "pointer", 1, uint16(4)),
	)

	It("should access this/that through updated pointers", func() {
		c, _ := runSource(`
			push constant 5000
			pop pointer 1
			push constant 17
			pop that 2
		`)
		Expect(c.RAM[5002]).To(Equal(uint16(17)))
	})

	It("should keep statics separate per unit", func() {
		code := translateUnits(translator.Options{},
			unit{"Foo", "push constant 11\npop static 0"},
			unit{"Bar", "push constant 22\npop static 0\npush static 0"},
		)
		c, a := execute(code, presetSegments)
		Expect(symbolValue(c, a, "Foo.0")).To(Equal(int16(11)))
		Expect(symbolValue(c, a, "Bar.0")).To(Equal(int16(22)))
		Expect(c.Stack()).To(Equal([]int16{22}))
	})

	It("should store statics of the default unit", func() {
		c, a := runSource("push constant 9\npop static 4")
		Expect(symbolValue(c, a, "Main.4")).To(Equal(int16(9)))
	})

	It("should loop with if-goto", func() {
		c, _ := runSource(`
			push constant 0
			pop local 0       // sum
			push constant 5
			pop local 1       // n
		label LOOP
			push local 0
			push local 1
			add
			pop local 0
			push local 1
			push constant 1
			sub
			pop local 1
			push local 1
			if-goto LOOP
			push local 0
		`)
		Expect(c.Stack()).To(Equal([]int16{15}))
	})

	It("should generate unique labels", func() {
		code := translateSource(strings.Repeat("push constant 1\npush constant 2\nlt\ncall Main.f 0\n", 4) +
			"function Main.f 0\npush constant 0\nreturn\n")
		seen := map[string]bool{}
		for _, line := range strings.Split(code, "\n") {
			if strings.HasPrefix(line, "(") {
				Expect(seen).NotTo(HaveKey(line))
				seen[line] = true
			}
		}
		// Five labels per ordered comparison, one per call, Main.f and $END.
		Expect(seen).To(HaveLen(4*(5+1) + 2))
	})

	Context("with bootstrap", func() {
		const fact = `
		function Main.fact 0
			push argument 0
			push constant 1
			gt
			if-goto RECURSE
			push constant 1
			return
		label RECURSE
			push argument 0
			push argument 0
			push constant 1
			sub
			call Main.fact 1
			call Main.mult 2
			return

		// mult(a, b) adds a to itself b times
		function Main.mult 1
			push constant 0
			pop local 0
		label LOOP
			push argument 1
			if-goto BODY
			push local 0
			return
		label BODY
			push local 0
			push argument 0
			add
			pop local 0
			push argument 1
			push constant 1
			sub
			pop argument 1
			goto LOOP
		`

		It("should compute a recursive factorial", func() {
			code := translateUnits(translator.DefaultOptions(),
				unit{"Main", fact},
				unit{"Sys", `
				function Sys.init 0
					push constant 5
					call Main.fact 1
					pop static 0
				label HALT
					goto HALT
				`},
			)
			c, a := execute(code, nil)
			Expect(symbolValue(c, a, "Sys.0")).To(Equal(int16(120)))
		})

		It("should restore the caller frame across a call", func() {
			code := translateUnits(translator.DefaultOptions(),
				unit{"Main", `
				function Main.add 1
					push constant 1000
					pop pointer 0
					push constant 2000
					pop pointer 1
					push argument 0
					push argument 1
					add
					return

				function Main.seven 0
					push constant 7
					return
				`},
				unit{"Sys", `
				function Sys.init 2
					push constant 3000
					pop pointer 0
					push constant 4000
					pop pointer 1
					push constant 11
					pop local 0
					push constant 7
					push constant 9
					call Main.add 2
					push local 0
					add
					pop static 1
					call Main.seven 0
					pop local 1
				label HALT
					goto HALT
				`},
			)
			c, a := execute(code, nil)

			// Bootstrap call frame: 256 + 5 saved words.
			Expect(c.RAM[cpu.AddrLCL]).To(Equal(uint16(261)))
			Expect(c.RAM[cpu.AddrARG]).To(Equal(uint16(256)))
			Expect(c.RAM[cpu.AddrTHIS]).To(Equal(uint16(3000)))
			Expect(c.RAM[cpu.AddrTHAT]).To(Equal(uint16(4000)))
			Expect(c.SP()).To(Equal(uint16(263)))

			Expect(c.Word(261)).To(Equal(int16(11)))
			Expect(c.Word(262)).To(Equal(int16(7)))
			Expect(symbolValue(c, a, "Sys.1")).To(Equal(int16(27)))
		})

		It("should halt when the entry function returns", func() {
			code := translateUnits(translator.DefaultOptions(),
				unit{"Sys", "function Sys.init 0\npush constant 3\nreturn"},
			)
			c, a := execute(code, nil)
			end, ok := a.Symbol("$END")
			Expect(ok).To(BeTrue())
			Expect(c.PC).To(Equal(end))

			// Return value lands in ARG[0] of the bootstrap frame.
			Expect(c.Word(256)).To(Equal(int16(3)))
			Expect(c.SP()).To(Equal(uint16(257)))
		})

		It("should assemble repeated label names in different functions", func() {
			code := translateUnits(translator.DefaultOptions(),
				unit{"Sys", `
				function Sys.init 0
				label LOOP
					goto LOOP
				function Sys.other 0
				label LOOP
					goto LOOP
				`},
			)
			_, _, err := asm.Assemble(code)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
