package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memmgr/heap"
	"github.com/joshuapare/memmgr/heap/chunk"
	"github.com/joshuapare/memmgr/internal/mmfile"
)

var (
	replaySize  uint32
	replayMmap  string
	replayAnon  bool
	replayImage string
)

func init() {
	rootCmd.AddCommand(newReplayCmd())
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script>",
		Short: "Run an allocation script against a fresh heap",
		Long: `The replay command runs an allocation script against a fresh heap and
prints the resulting chunk table. Use "-" to read the script from stdin.

Script lines:
  a = alloc 51          allocate and bind the pointer to a
  b = zalloc 20         allocate zero-filled
  c = calloc 4 8        allocate count*size zero-filled
  a = realloc a 100     resize a
  free b                release b
  fill a 0x41           fill the payload of a
  overrun a 1           write n bytes past the end of a
  site a 0x1234         overwrite the recorded call site of a
  check                 validate every chunk
  dump                  print the chunk table

Example:
  heapctl replay trace.txt --size 4096
  heapctl replay trace.txt --mmap heap.img && heapctl inspect heap.img`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	cmd.Flags().Uint32Var(&replaySize, "size", heap.DefaultHeapSize, "Heap size in bytes")
	cmd.Flags().StringVar(&replayMmap, "mmap", "", "Back the heap with a memory-mapped image file")
	cmd.Flags().BoolVar(&replayAnon, "anon", false, "Back the heap with an anonymous memory mapping")
	cmd.Flags().StringVar(&replayImage, "image", "", "Write a snapshot of the heap to this file")
	return cmd
}

func runReplay(args []string) (err error) {
	script, closeScript, err := openScript(args[0])
	if err != nil {
		return err
	}
	defer closeScript()

	mem, release, err := heapBuffer()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	h, err := heap.New(mem,
		heap.WithConfig(config()),
		heap.WithLogger(logger),
		heap.WithMutex(nil))
	if err != nil {
		return fmt.Errorf("failed to create heap: %w", err)
	}
	printVerbose("Heap: %d bytes, %d chunk(s)\n", h.Size(), h.NbChunk())

	r := newReplayer(h, os.Stdout)
	if err := r.run(script); err != nil {
		return err
	}

	if replayImage != "" {
		if err := os.WriteFile(replayImage, h.Snapshot(), 0o644); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}
		printVerbose("Image written to %s\n", replayImage)
	}

	if jsonOut {
		return printJSON(newHeapReport(h, r.vars))
	}
	if !quiet {
		return h.Dump(os.Stdout)
	}
	return nil
}

func openScript(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open script: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// heapBuffer returns the buffer selected by the replay flags and the
// function releasing it.
func heapBuffer() ([]byte, func() error, error) {
	switch {
	case replayMmap != "":
		logger.Debug("mapping heap image", "path", replayMmap, "size", replaySize)
		return mmfile.Create(replayMmap, int(replaySize))
	case replayAnon:
		logger.Debug("anonymous heap mapping", "size", replaySize)
		return mmfile.Anonymous(int(replaySize))
	default:
		return make([]byte, replaySize), func() error { return nil }, nil
	}
}

// replayer executes script lines against a heap.
type replayer struct {
	h    *heap.Heap
	vars map[string]heap.Ptr
	out  io.Writer
	line int
}

func newReplayer(h *heap.Heap, out io.Writer) *replayer {
	return &replayer{h: h, vars: make(map[string]heap.Ptr), out: out}
}

// run executes every line of script. Allocation failures are reported and
// the script goes on; heap corruption and syntax errors stop it.
func (r *replayer) run(script io.Reader) error {
	sc := bufio.NewScanner(script)
	for sc.Scan() {
		r.line++
		if err := r.exec(sc.Text()); err != nil {
			return fmt.Errorf("line %d: %w", r.line, err)
		}
	}
	return sc.Err()
}

// exec runs one script line, turning a corruption panic into an error.
func (r *replayer) exec(line string) (err error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	defer func() {
		v := recover()
		if v == nil {
			return
		}
		ce, ok := v.(*chunk.CorruptionError)
		if !ok {
			panic(v)
		}
		err = fmt.Errorf("heap corruption: %w", ce)
	}()

	var target string
	if len(fields) >= 3 && fields[1] == "=" {
		target = fields[0]
		fields = fields[2:]
	}

	op, args := fields[0], fields[1:]
	switch op {
	case "alloc", "zalloc", "calloc", "realloc":
		if target == "" {
			return fmt.Errorf("%s needs a target: x = %s ...", op, op)
		}
		return r.allocate(target, op, args)
	}
	if target != "" {
		return fmt.Errorf("%s does not return a pointer", op)
	}

	switch op {
	case "free":
		p, err := r.ptrArgs(op, args, 1)
		if err != nil {
			return err
		}
		r.h.Free(p)
		delete(r.vars, args[0])
	case "fill":
		p, err := r.ptrArgs(op, args, 2)
		if err != nil {
			return err
		}
		v, err := parseUint(args[1], 8)
		if err != nil {
			return err
		}
		b := r.h.Bytes(p)
		for i := range b {
			b[i] = byte(v)
		}
	case "overrun":
		p, err := r.ptrArgs(op, args, 2)
		if err != nil {
			return err
		}
		n, err := parseUint(args[1], 32)
		if err != nil {
			return err
		}
		b := r.h.Bytes(p)
		if uint64(len(b))+n > uint64(cap(b)) {
			return fmt.Errorf("overrun of %d bytes leaves the chunk", n)
		}
		b = b[:len(b)+int(n)]
		for i := len(b) - int(n); i < len(b); i++ {
			b[i] = 0xFF
		}
	case "site":
		p, err := r.ptrArgs(op, args, 2)
		if err != nil {
			return err
		}
		site, err := parseUint(args[1], 64)
		if err != nil {
			return err
		}
		r.h.AllocatorSet(p, site)
	case "check":
		r.h.Check()
		fmt.Fprintf(r.out, "check: %d chunk(s) ok\n", r.h.NbChunk())
	case "dump":
		return r.h.Dump(r.out)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	return nil
}

func (r *replayer) allocate(target, op string, args []string) error {
	var (
		p   heap.Ptr
		err error
	)
	switch op {
	case "alloc", "zalloc":
		if len(args) != 1 {
			return fmt.Errorf("usage: x = %s <size>", op)
		}
		n, perr := parseUint(args[0], 32)
		if perr != nil {
			return perr
		}
		if op == "alloc" {
			p, err = r.h.Alloc(uint32(n))
		} else {
			p, err = r.h.Zalloc(uint32(n))
		}
	case "calloc":
		if len(args) != 2 {
			return errors.New("usage: x = calloc <count> <size>")
		}
		count, perr := parseUint(args[0], 32)
		if perr != nil {
			return perr
		}
		size, perr := parseUint(args[1], 32)
		if perr != nil {
			return perr
		}
		p, err = r.h.Calloc(uint32(count), uint32(size))
	case "realloc":
		old, perr := r.ptrArgs(op, args, 2)
		if perr != nil {
			return perr
		}
		n, perr := parseUint(args[1], 32)
		if perr != nil {
			return perr
		}
		p, err = r.h.Realloc(old, uint32(n))
		if err == nil && args[0] != target {
			delete(r.vars, args[0])
		}
	}

	if err != nil {
		// Out of space and oversized requests are part of what a script
		// exercises; the previous binding stays valid.
		fmt.Fprintf(r.out, "%s: %v\n", target, err)
		logger.Debug("replay request failed", "line", r.line, "op", op, "err", err)
		return nil
	}
	if p == heap.Nil {
		delete(r.vars, target)
	} else {
		r.vars[target] = p
	}
	printVerbose("%s = 0x%X\n", target, uint32(p))
	return nil
}

// ptrArgs checks the argument count and resolves the first argument to a
// bound pointer. "nil" resolves to heap.Nil.
func (r *replayer) ptrArgs(op string, args []string, want int) (heap.Ptr, error) {
	if len(args) != want {
		return heap.Nil, fmt.Errorf("%s expects %d argument(s), got %d", op, want, len(args))
	}
	if args[0] == "nil" {
		return heap.Nil, nil
	}
	p, ok := r.vars[args[0]]
	if !ok {
		return heap.Nil, fmt.Errorf("unknown pointer %q", args[0])
	}
	return p, nil
}

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}
