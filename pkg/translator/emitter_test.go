package translator_test

import (
	"errors"
	"strings"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"hackvm/pkg/translator"
	"hackvm/pkg/vm"
)

var _ = Describe("Emitter", func() {
	var (
		buf *translator.Buffer
		e   *translator.Emitter
	)

	BeforeEach(func() {
		buf = &translator.Buffer{}
		e = translator.NewEmitter(buf, translator.Options{})
	})

	It("should push a constant", func() {
		Expect(e.Translate(vm.Command{Kind: vm.Push, Arg1: "constant", Arg2: 7})).To(Succeed())
		Expect(buf.Lines()).To(Equal([]string{
			"@7", "D=A",
			"@SP", "A=M", "M=D", "@SP", "M=M+1",
		}))
	})

	It("should pop through R13 for indirect segments", func() {
		Expect(e.Translate(vm.Command{Kind: vm.Pop, Arg1: "local", Arg2: 2})).To(Succeed())
		Expect(buf.Lines()).To(Equal([]string{
			"@LCL", "D=M", "@2", "D=D+A", "@R13", "M=D",
			"@SP", "AM=M-1", "D=M",
			"@R13", "A=M", "M=D",
		}))
	})

	It("should address pointer slots by name", func() {
		Expect(e.Translate(vm.Command{Kind: vm.Pop, Arg1: "pointer", Arg2: 1})).To(Succeed())
		Expect(buf.Lines()).To(ContainElement("@THAT"))
	})

	It("should scope labels to the enclosing function", func() {
		Expect(e.Translate(vm.Command{Kind: vm.Label, Arg1: "TOP"})).To(Succeed())
		Expect(e.Translate(vm.Command{Kind: vm.Function, Arg1: "Main.loop", Arg2: 0})).To(Succeed())
		Expect(e.Translate(vm.Command{Kind: vm.Label, Arg1: "TOP"})).To(Succeed())
		Expect(e.Translate(vm.Command{Kind: vm.Goto, Arg1: "TOP"})).To(Succeed())

		Expect(buf.Lines()).To(ContainElement("($Main$TOP)"))
		Expect(buf.Lines()).To(ContainElement("(Main.loop$TOP)"))
		Expect(buf.Lines()).To(ContainElement("@Main.loop$TOP"))
	})

	It("should keep unit-level labels apart from a function named after the unit", func() {
		Expect(e.Translate(vm.Command{Kind: vm.Label, Arg1: "L"})).To(Succeed())
		Expect(e.Translate(vm.Command{Kind: vm.Function, Arg1: "Main", Arg2: 0})).To(Succeed())
		Expect(e.Translate(vm.Command{Kind: vm.Label, Arg1: "L"})).To(Succeed())
		Expect(buf.Lines()).To(ContainElements("($Main$L)", "(Main$L)"))
	})

	It("should reset the function scope when the unit changes", func() {
		Expect(e.Translate(vm.Command{Kind: vm.Function, Arg1: "Main.f", Arg2: 0})).To(Succeed())
		Expect(e.SetUnit("Other")).To(Succeed())
		Expect(e.Unit()).To(Equal("Other"))
		Expect(e.Translate(vm.Command{Kind: vm.Label, Arg1: "X"})).To(Succeed())
		Expect(buf.Lines()).To(ContainElement("($Other$X)"))
	})

	It("should number comparison and return labels independently", func() {
		cmds := []vm.Command{
			{Kind: vm.Arithmetic, Arg1: "eq"},
			{Kind: vm.Call, Arg1: "Main.f", Arg2: 0},
			{Kind: vm.Arithmetic, Arg1: "lt"},
			{Kind: vm.Call, Arg1: "Main.f", Arg2: 0},
		}
		for _, cmd := range cmds {
			Expect(e.Translate(cmd)).To(Succeed())
		}
		Expect(buf.Lines()).To(ContainElements(
			"($CMP_TRUE.0)", "($CMP_END.0)",
			"($CMP_TRUE.1)", "($CMP_END.1)",
			"($RET.0)", "($RET.1)",
		))
	})

	It("should echo commands as comments when asked", func() {
		e = translator.NewEmitter(buf, translator.Options{Comments: true})
		Expect(e.Translate(vm.Command{Kind: vm.Push, Arg1: "constant", Arg2: 7})).To(Succeed())
		Expect(buf.Lines()[0]).To(Equal("// push constant 7"))
	})

	It("should end the program with a halt loop", func() {
		Expect(e.Finish()).To(Succeed())
		Expect(buf.Lines()).To(Equal([]string{"($END)", "@$END", "0;JMP"}))
	})

	It("should refuse commands after Finish", func() {
		Expect(e.Finish()).To(Succeed())
		err := e.Translate(vm.Command{Kind: vm.Return})
		Expect(err).To(MatchError(translator.ErrFinished))
		Expect(e.Finish()).To(MatchError(translator.ErrFinished))
	})

	Context("with bootstrap", func() {
		BeforeEach(func() {
			e = translator.NewEmitter(buf, translator.DefaultOptions())
		})

		It("should initialize SP and call the entry function first", func() {
			Expect(e.Translate(vm.Command{Kind: vm.Function, Arg1: "Sys.init", Arg2: 0})).To(Succeed())
			lines := buf.Lines()
			Expect(lines[:4]).To(Equal([]string{"@256", "D=A", "@SP", "M=D"}))
			Expect(lines).To(ContainElement("@Sys.init"))
			Expect(lines).To(ContainElement("($RET.0)"))
			Expect(lines).To(ContainElement("@$END"))
		})

		It("should emit the bootstrap only once", func() {
			Expect(e.Translate(vm.Command{Kind: vm.Return})).To(Succeed())
			Expect(e.Translate(vm.Command{Kind: vm.Return})).To(Succeed())
			Expect(strings.Count(buf.String(), "@Sys.init\n")).To(Equal(1))
		})

		It("should honour a custom stack base and entry", func() {
			e = translator.NewEmitter(buf, translator.Options{Bootstrap: true, Entry: "Main.main", StackBase: 512})
			Expect(e.Translate(vm.Command{Kind: vm.Function, Arg1: "Main.main", Arg2: 0})).To(Succeed())
			Expect(e.Finish()).To(Succeed())
			Expect(buf.Lines()[0]).To(Equal("@512"))
			Expect(buf.Lines()).To(ContainElement("@Main.main"))
		})

		It("should reject an invalid entry name", func() {
			e = translator.NewEmitter(buf, translator.Options{Bootstrap: true, Entry: "1bad"})
			Expect(e.Finish()).To(MatchError(translator.ErrBootstrap))
		})

		It("should reject an entry shaped like a static variable", func() {
			e = translator.NewEmitter(buf, translator.Options{Bootstrap: true, Entry: "Sys.0"})
			Expect(e.Finish()).To(MatchError(translator.ErrBootstrap))
		})

		It("should fail when the entry function is never declared", func() {
			Expect(e.Translate(vm.Command{Kind: vm.Push, Arg1: "constant", Arg2: 7})).To(Succeed())
			err := e.Finish()
			Expect(err).To(MatchError(translator.ErrUndefinedFunction))
			Expect(err.Error()).To(ContainSubstring("Sys.init"))
			Expect(buf.Lines()).NotTo(ContainElement("($END)"))
		})
	})

	Describe("call targets", func() {
		It("should fail on calls to undeclared functions, naming each once", func() {
			Expect(e.Translate(vm.Command{Kind: vm.Call, Arg1: "Main.b", Arg2: 0})).To(Succeed())
			Expect(e.Translate(vm.Command{Kind: vm.Call, Arg1: "Main.a", Arg2: 1})).To(Succeed())
			Expect(e.Translate(vm.Command{Kind: vm.Call, Arg1: "Main.a", Arg2: 1})).To(Succeed())
			err := e.Finish()
			Expect(err).To(MatchError(translator.ErrUndefinedFunction))
			Expect(err.Error()).To(HaveSuffix(": Main.a, Main.b"))
		})

		It("should accept functions declared after their callers", func() {
			Expect(e.Translate(vm.Command{Kind: vm.Call, Arg1: "Main.f", Arg2: 0})).To(Succeed())
			Expect(e.Translate(vm.Command{Kind: vm.Function, Arg1: "Main.f", Arg2: 0})).To(Succeed())
			Expect(e.Translate(vm.Command{Kind: vm.Return})).To(Succeed())
			Expect(e.Finish()).To(Succeed())
		})

		It("should accept a declared entry function", func() {
			e = translator.NewEmitter(buf, translator.DefaultOptions())
			Expect(e.Translate(vm.Command{Kind: vm.Function, Arg1: "Sys.init", Arg2: 0})).To(Succeed())
			Expect(e.Finish()).To(Succeed())
		})
	})

	DescribeTable("rejects invalid commands",
		func(cmd vm.Command, want error) {
			err := e.Translate(cmd)
			Expect(err).To(MatchError(want))

			var terr *translator.Error
			Expect(errors.As(err, &terr)).To(BeTrue())
			Expect(terr.Command).To(Equal(cmd))
			Expect(buf.Lines()).To(BeEmpty())
		},
		Entry("pop constant", vm.Command{Kind: vm.Pop, Arg1: "constant", Arg2: 1}, translator.ErrPopConstant),
		Entry("temp 8", vm.Command{Kind: vm.Push, Arg1: "temp", Arg2: 8}, translator.ErrIndexOutOfRange),
		Entry("pointer 2", vm.Command{Kind: vm.Pop, Arg1: "pointer", Arg2: 2}, translator.ErrIndexOutOfRange),
		Entry("constant 32768", vm.Command{Kind: vm.Push, Arg1: "constant", Arg2: 32768}, translator.ErrIndexOutOfRange),
		Entry("unknown segment", vm.Command{Kind: vm.Push, Arg1: "heap", Arg2: 0}, translator.ErrUnknownSegment),
		Entry("unknown operator", vm.Command{Kind: vm.Arithmetic, Arg1: "mul"}, translator.ErrUnknownOperator),
		Entry("bad label", vm.Command{Kind: vm.Label, Arg1: "1x"}, translator.ErrInvalidName),
		Entry("reserved label", vm.Command{Kind: vm.Goto, Arg1: "$END"}, translator.ErrInvalidName),
		Entry("bad function", vm.Command{Kind: vm.Function, Arg1: "a-b", Arg2: 0}, translator.ErrInvalidName),
		Entry("function shaped like a static", vm.Command{Kind: vm.Function, Arg1: "Foo.1", Arg2: 0}, translator.ErrInvalidName),
		Entry("call shaped like a static", vm.Command{Kind: vm.Call, Arg1: "Foo.12", Arg2: 0}, translator.ErrInvalidName),
		Entry("negative local count", vm.Command{Kind: vm.Function, Arg1: "Main.f", Arg2: -1}, translator.ErrIndexOutOfRange),
		Entry("negative argument count", vm.Command{Kind: vm.Call, Arg1: "Main.f", Arg2: -1}, translator.ErrIndexOutOfRange),
		Entry("unknown kind", vm.Command{Kind: vm.Kind(99)}, translator.ErrUnknownCommand),
	)

	It("should report unit and line in errors", func() {
		Expect(e.SetUnit("Foo")).To(Succeed())
		err := e.Translate(vm.Command{Kind: vm.Pop, Arg1: "constant", Arg2: 0, Line: 3})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(HavePrefix("Foo.vm:3: pop constant 0:"))
	})

	It("should reject invalid unit names", func() {
		Expect(e.SetUnit("")).To(MatchError(translator.ErrInvalidName))
		Expect(e.SetUnit("9lives")).To(MatchError(translator.ErrInvalidName))
	})
})

var _ = Describe("Emitter sink", func() {
	var mockCtrl *gomock.Controller

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write lines in order", func() {
		sink := NewMockSink(mockCtrl)
		gomock.InOrder(
			sink.EXPECT().WriteLine("@SP").Return(nil),
			sink.EXPECT().WriteLine("A=M-1").Return(nil),
			sink.EXPECT().WriteLine("M=-M").Return(nil),
		)

		e := translator.NewEmitter(sink, translator.Options{})
		Expect(e.Translate(vm.Command{Kind: vm.Arithmetic, Arg1: "neg"})).To(Succeed())
	})

	It("should propagate write errors", func() {
		diskFull := errors.New("disk full")
		sink := NewMockSink(mockCtrl)
		sink.EXPECT().WriteLine(gomock.Any()).Return(diskFull)

		e := translator.NewEmitter(sink, translator.Options{})
		err := e.Translate(vm.Command{Kind: vm.Push, Arg1: "constant", Arg2: 1})
		Expect(err).To(MatchError(diskFull))
	})

	It("should write newline-terminated text to an io.Writer", func() {
		var sb strings.Builder
		e := translator.NewEmitter(translator.NewWriterSink(&sb), translator.Options{})
		Expect(e.Finish()).To(Succeed())
		Expect(sb.String()).To(Equal("($END)\n@$END\n0;JMP\n"))
	})
})
