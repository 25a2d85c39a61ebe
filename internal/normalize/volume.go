package normalize

import (
	"github.com/lepinkainen/bookworm/internal/catalog"
	"github.com/lepinkainen/bookworm/internal/googlebooks"
)

// Volume converts a raw search hit into a normalized book record.
func Volume(v googlebooks.Volume) catalog.Book {
	info := v.VolumeInfo

	return catalog.Book{
		GoogleBooksID: v.ID,
		Title:         info.Title,
		Description:   Text(info.Description),
		Language:      Language(info.Language),
		AverageRating: Rating(info.AverageRating),
		RatingsCount:  nonNegative(info.RatingsCount),
		ISBN13:        ISBN13(info.IndustryIdentifiers),
		PublishedDate: ParseDate(info.PublishedDate),
		PageCount:     nonNegative(info.PageCount),
		Authors:       Names(info.Authors),
		Genres:        Names(info.Categories),
	}
}

func nonNegative(n *int) *int {
	if n == nil || *n < 0 {
		return nil
	}
	return n
}
