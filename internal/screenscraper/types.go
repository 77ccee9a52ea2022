package screenscraper

import "github.com/goccy/go-json"

// Header is the envelope header every JSON endpoint returns
type Header struct {
	APIVersion       string `json:"APIversion"`
	CommandRequested string `json:"commandRequested"`
	Success          string `json:"success"`
	Error            string `json:"error"`
}

// Game is the wire shape of a jeuInfos "jeu" object.
// Fields are kept raw: the upstream has changed their shapes over time and
// the normalize package decides how to read each variant.
type Game struct {
	ID         json.RawMessage `json:"id"`
	NotGame    json.RawMessage `json:"notgame"`
	Names      json.RawMessage `json:"noms"`
	Name       json.RawMessage `json:"nom"`
	CloneOf    json.RawMessage `json:"cloneof"`
	System     json.RawMessage `json:"systeme"`
	Publisher  json.RawMessage `json:"editeur"`
	Developer  json.RawMessage `json:"developpeur"`
	Players    json.RawMessage `json:"joueurs"`
	Rating     json.RawMessage `json:"note"`
	TopStaff   json.RawMessage `json:"topstaff"`
	Rotation   json.RawMessage `json:"rotation"`
	Resolution json.RawMessage `json:"resolution"`
	Synopsis   json.RawMessage `json:"synopsis"`
	Dates      json.RawMessage `json:"dates"`
	Date       json.RawMessage `json:"date"`
	Genres     json.RawMessage `json:"genres"`
	Families   json.RawMessage `json:"familles"`
	Medias     json.RawMessage `json:"medias"`
}

// System is the wire shape of one systemesListe entry
type System struct {
	ID        json.RawMessage `json:"id"`
	ParentID  json.RawMessage `json:"parentid"`
	Names     json.RawMessage `json:"noms"`
	Name      json.RawMessage `json:"nom"`
	Company   json.RawMessage `json:"compagnie"`
	Type      json.RawMessage `json:"type"`
	StartDate json.RawMessage `json:"datedebut"`
	EndDate   json.RawMessage `json:"datefin"`
	Synopsis  json.RawMessage `json:"synopsis"`
	Medias    json.RawMessage `json:"medias"`
}

// Genre is the wire shape of one genresListe entry
type Genre struct {
	ID        json.RawMessage `json:"id"`
	ShortName json.RawMessage `json:"nomcourt"`
	ParentID  json.RawMessage `json:"parentid"`
	Principal json.RawMessage `json:"principale"`
	Names     json.RawMessage `json:"noms"`
}

// GameSummary is one hit of jeuRecherche
type GameSummary struct {
	ID    json.RawMessage `json:"id"`
	Names json.RawMessage `json:"noms"`
}

type gameInfoResponse struct {
	Header   Header `json:"header"`
	Response struct {
		Game *Game `json:"jeu"`
	} `json:"response"`
}

type systemsResponse struct {
	Header   Header `json:"header"`
	Response struct {
		Systems []System `json:"systemes"`
	} `json:"response"`
}

type genresResponse struct {
	Header   Header `json:"header"`
	Response struct {
		Genres []Genre `json:"genres"`
	} `json:"response"`
}

type searchResponse struct {
	Header   Header `json:"header"`
	Response struct {
		Games []GameSummary `json:"jeux"`
	} `json:"response"`
}
