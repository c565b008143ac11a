package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const (
	stateEntry = "cpu_state.json"
	ramEntry   = "ram.bin"
	romEntry   = "rom.bin"
)

// humanReadableState is the JSON-serializable snapshot of CPU control state.
type humanReadableState struct {
	A           uint16 `json:"a"`
	D           uint16 `json:"d"`
	PC          uint16 `json:"pc"`
	Cycles      uint64 `json:"cycles"`
	Halted      bool   `json:"halted"`
	ProgramSize int    `json:"program_size"`

	// Informational only; restored from ram.bin.
	SP  uint16 `json:"sp"`
	LCL uint16 `json:"lcl"`
	ARG uint16 `json:"arg"`
}

// HibernateToBytes serialises the machine into an in-memory ZIP archive.
func (c *CPU) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := humanReadableState{
		A:           c.A,
		D:           c.D,
		PC:          c.PC,
		Cycles:      c.Cycles,
		Halted:      c.Halted,
		ProgramSize: c.programSize,
		SP:          c.RAM[AddrSP],
		LCL:         c.RAM[AddrLCL],
		ARG:         c.RAM[AddrARG],
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal cpu_state: %w", err)
	}
	if err := writeZipEntry(zw, stateEntry, jsonData); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, ramEntry, uint16SliceToLE(c.RAM[:])); err != nil {
		return nil, err
	}
	// Only the loaded part of ROM; the rest is zero.
	if err := writeZipEntry(zw, romEntry, uint16SliceToLE(c.ROM[:c.programSize])); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes replaces the machine state with the snapshot in data.
func (c *CPU) RestoreFromBytes(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	stateData, err := readZipEntry(files, stateEntry)
	if err != nil {
		return err
	}
	var state humanReadableState
	if err := json.Unmarshal(stateData, &state); err != nil {
		return fmt.Errorf("unmarshal cpu_state: %w", err)
	}

	ramData, err := readZipEntry(files, ramEntry)
	if err != nil {
		return err
	}
	if len(ramData) != RAMSize*2 {
		return fmt.Errorf("%s: expected %d bytes, got %d", ramEntry, RAMSize*2, len(ramData))
	}

	romData, err := readZipEntry(files, romEntry)
	if err != nil {
		return err
	}
	if len(romData)%2 != 0 || len(romData)/2 > ROMSize {
		return fmt.Errorf("%s: invalid size %d", romEntry, len(romData))
	}
	if state.ProgramSize != len(romData)/2 {
		return fmt.Errorf("%s: program size %d does not match state %d", romEntry, len(romData)/2, state.ProgramSize)
	}

	c.ROM = [ROMSize]uint16{}
	leToUint16Slice(romData, c.ROM[:])
	leToUint16Slice(ramData, c.RAM[:])
	c.programSize = state.ProgramSize
	c.A = state.A
	c.D = state.D
	c.PC = state.PC
	c.Cycles = state.Cycles
	c.Halted = state.Halted
	return nil
}

func (c *CPU) HibernateToFile(filename string) error {
	data, err := c.HibernateToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

func (c *CPU) RestoreFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	return c.RestoreFromBytes(data)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write zip entry %s: %w", name, err)
	}
	return nil
}

func readZipEntry(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("snapshot missing %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func uint16SliceToLE(s []uint16) []byte {
	b := make([]byte, len(s)*2)
	for i, v := range s {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	return b
}

func leToUint16Slice(b []byte, dst []uint16) {
	for i := 0; i < len(b)/2 && i < len(dst); i++ {
		dst[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
}
