package gnc

// File is one loaded GnuCash document: its books, the path it came from, and
// the guid registry every entity guid in the document is recorded in.
type File struct {
	Books    []*Book
	FileName string
	Guids    *GuidRegistry
}

// NewFile creates an empty document with its own guid registry.
func NewFile() *File {
	return &File{Guids: NewGuidRegistry()}
}

// Book returns the file's first book, creating one if the file is empty.
// GnuCash documents in practice hold exactly one book.
func (f *File) Book() *Book {
	if len(f.Books) == 0 {
		f.Books = append(f.Books, NewBook(f.Guids))
	}
	return f.Books[0]
}
