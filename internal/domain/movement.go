package domain

// InBounds reports whether p lies inside the [0,width) x [0,height) grid.
func InBounds(p Position, width, height int) bool {
	return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
}

// IsAdjacent reports whether next is exactly one orthogonal step away from cur.
// Diagonals, staying in place and jumps over several cells are not adjacent.
func IsAdjacent(cur, next Position) bool {
	dx := abs(next.X - cur.X)
	dy := abs(next.Y - cur.Y)

	return dx+dy == 1
}

// LegalStep — чистая проверка хода: одна клетка по одной оси, строго внутри
// границ пространства. Никаких побочных эффектов.
func LegalStep(cur, next Position, width, height int) bool {
	return InBounds(next, width, height) && IsAdjacent(cur, next)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
