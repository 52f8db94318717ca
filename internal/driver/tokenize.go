package driver

import (
	"vesper/internal/diag"
	"vesper/internal/lexer"
	"vesper/internal/source"
	"vesper/internal/token"
)

type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// Tokenize lexes one file for the tokenize command.
func Tokenize(path string, maxDiagnostics int) (*TokenizeResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(fileID)
	if maxDiagnostics <= 0 {
		maxDiagnostics = 64
	}
	bag := diag.NewBag(maxDiagnostics)
	tokens := lexer.Tokenize(file, diag.BagReporter{Bag: bag})
	return &TokenizeResult{
		FileSet: fs,
		File:    file,
		Tokens:  tokens,
		Bag:     bag,
	}, nil
}
