package vectordb

// Chunk is one piece of document text stored in an Index. Position is its
// insertion order and breaks similarity ties.
type Chunk struct {
	Position int
	Content  string
	Metadata map[string]string
}

// Match pairs a stored chunk with its cosine similarity to the query.
type Match struct {
	Chunk
	Similarity float32
}
