package clash

// Player represents the response from /players/{tag}
type Player struct {
	Tag          string       `json:"tag"`
	Name         string       `json:"name"`
	ExpLevel     int          `json:"expLevel"`
	Trophies     int          `json:"trophies"`
	BestTrophies int          `json:"bestTrophies"`
	Arena        Arena        `json:"arena"`
	CurrentDeck  []PlayerCard `json:"currentDeck"`
}

type Arena struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PlayerCard is one card in a player's collection or current deck
type PlayerCard struct {
	Name     string   `json:"name"`
	Level    int      `json:"level"`
	MaxLevel int      `json:"maxLevel"`
	Count    int      `json:"count"`
	Rarity   string   `json:"rarity"`
	IconURLs IconURLs `json:"iconUrls"`
}

type IconURLs struct {
	Medium string `json:"medium"`
	Small  string `json:"small"`
}

// Battle represents one entry in /players/{tag}/battlelog (most recent first)
type Battle struct {
	Type       string         `json:"type"`
	BattleTime string         `json:"battleTime"`
	GameMode   GameMode       `json:"gameMode"`
	Team       []BattlePlayer `json:"team"`
	Opponent   []BattlePlayer `json:"opponent"`
}

type GameMode struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type BattlePlayer struct {
	Tag    string       `json:"tag"`
	Name   string       `json:"name"`
	Crowns int          `json:"crowns"`
	Cards  []PlayerCard `json:"cards"`
}

// RankedPlayer is one entry in a /locations/{id}/rankings/players page
type RankedPlayer struct {
	Tag      string `json:"tag"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	Trophies int    `json:"trophies"`
}

// RankingPage represents one page of the ranked-player listing
type RankingPage struct {
	Items  []RankedPlayer `json:"items"`
	Paging Paging         `json:"paging"`
}

// Location is one entry in the /locations catalog
type Location struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	IsCountry   bool   `json:"isCountry"`
	CountryCode string `json:"countryCode"`
}

// LocationPage represents one page of the locations catalog
type LocationPage struct {
	Items  []Location `json:"items"`
	Paging Paging     `json:"paging"`
}

// Paging carries the opaque cursors for list endpoints
type Paging struct {
	Cursors Cursors `json:"cursors"`
}

type Cursors struct {
	After  string `json:"after"`
	Before string `json:"before"`
}

// After returns the next-page cursor, empty when the listing is exhausted
func (p *RankingPage) After() string { return p.Paging.Cursors.After }

// After returns the next-page cursor, empty when the catalog is exhausted
func (p *LocationPage) After() string { return p.Paging.Cursors.After }

// CatalogCard is one entry in the /cards catalog
type CatalogCard struct {
	Name     string   `json:"name"`
	IconURLs IconURLs `json:"iconUrls"`
}

// PopularDeck is one entry of the pre-aggregated popular-decks listing
type PopularDeck struct {
	Cards     []string `json:"cards"`
	Count     int      `json:"count"`
	Archetype string   `json:"archetype"`
}

// cardList is the generic {items: [...]} wrapper most list endpoints use
type cardList struct {
	Items []PlayerCard `json:"items"`
}

type catalogList struct {
	Items []CatalogCard `json:"items"`
}

type popularDeckList struct {
	Items []PopularDeck `json:"items"`
}

// apiError is the error body the API attaches to non-2xx responses
type apiError struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
