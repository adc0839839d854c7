package efidecompress

// Stream format constants.
const (
	HeaderSize = 8 // Compressed size (LE uint32) followed by original size (LE uint32).

	bitBufSize = 32 // Width of the bit shift register.
	codeBit    = 16 // Longest code length; canonical codes fill a 16-bit space.
	threshold  = 3  // Shortest match length.
	maxMatch   = 256

	NC    = 0xff + maxMatch + 2 - threshold // Char&Length-Set size: 256 literals + 254 match lengths.
	NT    = codeBit + 3                     // Extra-Set size.
	MaxNP = (1 << maxPBit) - 1              // Position-Set size.
	NPT   = MaxNP                           // Scratch size shared by Extra-Set and Position-Set lengths.

	cBit    = 9 // Width of the Char&Length-Set count and constant fields.
	tBit    = 5 // Width of the Extra-Set count and constant fields.
	maxPBit = 5

	cTableBits  = 12
	ptTableBits = 8

	treeNodes = 2*NC - 1 // Leaves plus internal nodes of the shared tree arena.

	extraSetSpecial = 3 // Extra-Set index followed by a 2-bit zero-run count.
)
