package provider

import "github.com/kinderslides/kinderslides/internal/model"

const (
	perPage   = 10
	minWidth  = 640
	minHeight = 480
)

// Profiles returns the search parameter profiles in the order they are
// tried: most specific first, so a broader profile only runs when the
// narrower ones produced nothing usable.
func Profiles() []model.Profile {
	return []model.Profile{
		{
			Name:       "education-illustration",
			ImageType:  "illustration",
			Category:   "education",
			MinWidth:   minWidth,
			MinHeight:  minHeight,
			PerPage:    perPage,
			SafeSearch: true,
		},
		{
			Name:       "illustration",
			ImageType:  "illustration",
			MinWidth:   minWidth,
			MinHeight:  minHeight,
			PerPage:    perPage,
			SafeSearch: true,
		},
		{
			Name:       "vector",
			ImageType:  "vector",
			PerPage:    perPage,
			SafeSearch: true,
		},
		{
			Name:       "any",
			ImageType:  "all",
			PerPage:    perPage,
			SafeSearch: true,
		},
	}
}
