package domain

// CatalogueEntry identifies a curated book by title and author.
type CatalogueEntry struct {
	Title  string
	Author string
	Genre  string
}

// Shelf is a named, ordered list of curated books shown on the home page.
type Shelf struct {
	Name    string
	Entries []CatalogueEntry
}

// CuratedShelves is the built-in catalogue seeded into new installations.
//
//nolint:gochecknoglobals // Static catalogue
var CuratedShelves = []Shelf{
	{
		Name: "Classics",
		Entries: []CatalogueEntry{
			{"Pride and Prejudice", "Jane Austen", "Classics"},
			{"Wuthering Heights", "Emily Brontë", "Classics"},
			{"Jane Eyre", "Charlotte Brontë", "Classics"},
			{"Great Expectations", "Charles Dickens", "Classics"},
			{"The Great Gatsby", "F. Scott Fitzgerald", "Classics"},
			{"Crime and Punishment", "Fyodor Dostoevsky", "Classics"},
			{"Frankenstein", "Mary Shelley", "Classics"},
			{"Dracula", "Bram Stoker", "Classics"},
			{"The Picture of Dorian Gray", "Oscar Wilde", "Classics"},
			{"1984", "George Orwell", "Classics"},
			{"Brave New World", "Aldous Huxley", "Classics"},
		},
	},
	{
		Name: "Cult favourites",
		Entries: []CatalogueEntry{
			{"The Secret History", "Donna Tartt", "Literary"},
			{"Fight Club", "Chuck Palahniuk", "Literary"},
			{"American Psycho", "Bret Easton Ellis", "Literary"},
			{"The Handmaid's Tale", "Margaret Atwood", "Dystopian"},
			{"The Bell Jar", "Sylvia Plath", "Literary"},
			{"The Road", "Cormac McCarthy", "Literary"},
			{"Gone Girl", "Gillian Flynn", "Mystery"},
			{"The Shining", "Stephen King", "Horror"},
		},
	},
	{
		Name: "Trending",
		Entries: []CatalogueEntry{
			{"Fourth Wing", "Rebecca Yarros", "Fantasy"},
			{"Iron Flame", "Rebecca Yarros", "Fantasy"},
			{"The Seven Husbands of Evelyn Hugo", "Taylor Jenkins Reid", "Romance"},
			{"The Song of Achilles", "Madeline Miller", "Fantasy"},
			{"It Ends with Us", "Colleen Hoover", "Romance"},
			{"The Silent Patient", "Alex Michaelides", "Mystery"},
		},
	},
}
