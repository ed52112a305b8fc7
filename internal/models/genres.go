// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package models

import "strconv"

// Genre is one entry of the controlled genre vocabulary.
type Genre struct {
	ID   int
	Name string
}

// UnknownGenre is the primary genre of a movie without any genre.
const UnknownGenre = "unknown"

// GenreVocabulary is the fixed one-hot universe, in output column order.
// Codes outside the vocabulary get no one-hot column.
var GenreVocabulary = [...]Genre{
	{28, "action"},
	{12, "adventure"},
	{16, "animation"},
	{35, "comedy"},
	{80, "crime"},
	{99, "documentary"},
	{18, "drama"},
	{10751, "family"},
	{14, "fantasy"},
	{36, "history"},
	{27, "horror"},
	{10402, "music"},
	{9648, "mystery"},
	{10749, "romance"},
	{878, "science_fiction"},
	{53, "thriller"},
	{10752, "war"},
	{37, "western"},
}

// NumGenres is the size of the genre vocabulary.
const NumGenres = len(GenreVocabulary)

var genreIndex = func() map[int]int {
	idx := make(map[int]int, NumGenres)
	for i, g := range GenreVocabulary {
		idx[g.ID] = i
	}
	return idx
}()

// GenreIndex returns the vocabulary position of a catalog genre code.
func GenreIndex(id int) (int, bool) {
	i, ok := genreIndex[id]
	return i, ok
}

// GenreLabel names a catalog genre code: its vocabulary name when known,
// otherwise "genre_<id>".
func GenreLabel(id int) string {
	if i, ok := genreIndex[id]; ok {
		return GenreVocabulary[i].Name
	}
	return "genre_" + strconv.Itoa(id)
}
