package studydto

// StudyVersion is the storage format version written by exports.
const StudyVersion = "0.0.2"

// Study is the chess-study storage document for one game.
type Study struct {
	Version string      `json:"version"`
	Header  StudyHeader `json:"header"`
	Moves   []StudyMove `json:"moves"`
	RootFEN string      `json:"rootFEN"`
}

type StudyHeader struct {
	Title *string `json:"title"`
}

// StudyMove mirrors one ledger entry. Before and After are FEN strings.
type StudyMove struct {
	Color    string        `json:"color"`
	Piece    string        `json:"piece"`
	From     string        `json:"from"`
	To       string        `json:"to"`
	SAN      string        `json:"san"`
	Flags    string        `json:"flags"`
	LAN      string        `json:"lan"`
	Before   string        `json:"before"`
	After    string        `json:"after"`
	Captured string        `json:"captured,omitempty"`
	Promote  string        `json:"promotion,omitempty"`
	MoveID   string        `json:"moveId"`
	Variants [][]StudyMove `json:"variants"`
	Shapes   []Shape       `json:"shapes"`
	Comment  *string       `json:"comment"`
}

// Shape is a board drawing (arrow or circle) attached to a move.
type Shape struct {
	Orig  string `json:"orig"`
	Dest  string `json:"dest,omitempty"`
	Brush string `json:"brush"`
}
