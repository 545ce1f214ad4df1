package deezer

// Playlist is a playlist entry in search results.
type Playlist struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	NbTracks int    `json:"nb_tracks"`
	Link     string `json:"link"`
}

// Artist is the artist reference embedded in a track.
type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Album is the album reference embedded in a track.
type Album struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Track is a track as returned inside a playlist.
type Track struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Duration int      `json:"duration"`
	Rank     int      `json:"rank"`
	BPM      *float64 `json:"bpm"` // not always present on playlist listings
	Preview  string   `json:"preview"`
	Link     string   `json:"link"`
	Artist   Artist   `json:"artist"`
	Album    Album    `json:"album"`
}

// searchPlaylistResponse is the JSON response for /search/playlist.
type searchPlaylistResponse struct {
	Data  []Playlist `json:"data"`
	Total int        `json:"total"`
}

// playlistResponse is the JSON response for /playlist/{id}.
type playlistResponse struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Tracks struct {
		Data []Track `json:"data"`
	} `json:"tracks"`
}

// apiError represents a Deezer error envelope.
type apiError struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}
