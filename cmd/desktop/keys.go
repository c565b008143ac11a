package main

import "github.com/hajimehoshi/ebiten/v2"

// Hack keyboard codes for keys without a printable character.
var specialKeys = map[ebiten.Key]uint16{
	ebiten.KeyEnter:      128,
	ebiten.KeyBackspace:  129,
	ebiten.KeyArrowLeft:  130,
	ebiten.KeyArrowUp:    131,
	ebiten.KeyArrowRight: 132,
	ebiten.KeyArrowDown:  133,
	ebiten.KeyHome:       134,
	ebiten.KeyEnd:        135,
	ebiten.KeyPageUp:     136,
	ebiten.KeyPageDown:   137,
	ebiten.KeyInsert:     138,
	ebiten.KeyDelete:     139,
	ebiten.KeyEscape:     140,
}

func init() {
	fkeys := []ebiten.Key{
		ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4,
		ebiten.KeyF5, ebiten.KeyF6, ebiten.KeyF7, ebiten.KeyF8,
		ebiten.KeyF9, ebiten.KeyF10, ebiten.KeyF11, ebiten.KeyF12,
	}
	for i, k := range fkeys {
		specialKeys[k] = 141 + uint16(i)
	}
}

// hackKey maps a physical key to its Hack code. Printable characters come
// from the typed text instead, so they honour shift and layout.
func hackKey(k ebiten.Key) (uint16, bool) {
	code, ok := specialKeys[k]
	return code, ok
}

// keyboard tracks the key that KBD should report: the last printable
// character typed while keys stay down, else the first special key held.
type keyboard struct {
	pressed []ebiten.Key
	chars   []rune
	typed   uint16
}

// update returns the Hack code for the current frame, 0 when no key is down.
func (kb *keyboard) update(pressed []ebiten.Key, chars []rune) uint16 {
	if len(pressed) == 0 {
		kb.typed = 0
		return 0
	}
	for _, r := range chars {
		if r >= 32 && r < 127 {
			kb.typed = uint16(r)
		}
	}
	for _, k := range pressed {
		if code, ok := hackKey(k); ok {
			return code
		}
	}
	return kb.typed
}
