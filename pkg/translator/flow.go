package translator

import "hackvm/pkg/vm"

// scopedLabel qualifies a user label with the enclosing function, or with
// "$<unit>" for code outside any function so unit scopes never meet a
// function of the same name.
func (e *Emitter) scopedLabel(label string) (string, error) {
	if !vm.IsIdentifier(label) {
		return "", ErrInvalidName
	}
	if e.function == "" {
		return "$" + e.unit + "$" + label, nil
	}
	return e.function + "$" + label, nil
}

func (e *Emitter) translateLabel(label string) ([]string, error) {
	l, err := e.scopedLabel(label)
	if err != nil {
		return nil, err
	}
	return []string{"(" + l + ")"}, nil
}

func (e *Emitter) translateGoto(label string) ([]string, error) {
	l, err := e.scopedLabel(label)
	if err != nil {
		return nil, err
	}
	return []string{"@" + l, "0;JMP"}, nil
}

func (e *Emitter) translateIfGoto(label string) ([]string, error) {
	l, err := e.scopedLabel(label)
	if err != nil {
		return nil, err
	}
	code := append([]string{}, popD...)
	return append(code, "@"+l, "D;JNE"), nil
}
