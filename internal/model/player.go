package model

type Player struct {
	ID    string
	Color Color
}

// ClientPlayer is a seat as shown to clients. An empty ID means the seat is open.
type ClientPlayer struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
}

func (p ClientPlayer) Taken() bool {
	return p.ID != ""
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

// Seat returns the colour playerID sits at.
func (p Players) Seat(playerID string) (Color, bool) {
	switch {
	case playerID == "":
		return "", false
	case p.White.ID == playerID:
		return White, true
	case p.Black.ID == playerID:
		return Black, true
	}
	return "", false
}

func (p Players) Full() bool {
	return p.White.Taken() && p.Black.Taken()
}
