// Package trust — levels.go содержит таблицу уровней доверия и чистые
// функции вывода уровня из счёта. Таблица упорядочена по MinScore,
// неизменяема и не хранится per-user: уровень всегда вычисляется на чтении.
package trust

// Level — именованный уровень доверия с порогом входа.
type Level struct {
	Name     string `json:"name"`
	MinScore int    `json:"min_score"`
}

// Levels — таблица уровней по возрастанию порога.
var Levels = []Level{
	{Name: "New", MinScore: 0},
	{Name: "Contributor", MinScore: 100},
	{Name: "Trusted", MinScore: 250},
	{Name: "Verified", MinScore: 500},
	{Name: "Elite", MinScore: 1000},
	{Name: "Core", MinScore: 1500},
}

// levelIndexFor возвращает индекс наивысшего уровня с MinScore ≤ score.
// Отрицательный счёт по инварианту не встречается, но функция на нём
// не падает — возвращает нижний уровень.
func levelIndexFor(score int) int {
	idx := 0
	for i, l := range Levels {
		if score >= l.MinScore {
			idx = i
		}
	}
	return idx
}

// LevelFor возвращает уровень доверия для счёта.
func LevelFor(score int) Level {
	return Levels[levelIndexFor(score)]
}

// NextLevelFor возвращает следующий уровень или nil, если достигнут верхний.
func NextLevelFor(score int) *Level {
	idx := levelIndexFor(score)
	if idx+1 >= len(Levels) {
		return nil
	}
	next := Levels[idx+1]
	return &next
}

// ProgressToNextLevel возвращает прогресс к следующему уровню в [0,1].
// На верхнем уровне всегда ровно 1 — проверка идёт до деления,
// поэтому деления на ноль не бывает.
func ProgressToNextLevel(score int) float64 {
	cur := LevelFor(score)
	next := NextLevelFor(score)
	if next == nil {
		return 1
	}
	p := float64(score-cur.MinScore) / float64(next.MinScore-cur.MinScore)
	if p < 0 {
		return 0
	}
	return p
}

// ordinalOf возвращает позицию уровня в таблице по имени.
func ordinalOf(name string) (int, bool) {
	for i, l := range Levels {
		if l.Name == name {
			return i, true
		}
	}
	return 0, false
}

// HasAtLeastLevel сравнивает уровень счёта с именованным уровнем
// по позициям в таблице. Неизвестное имя уровня — false.
func HasAtLeastLevel(score int, levelName string) bool {
	want, ok := ordinalOf(levelName)
	if !ok {
		return false
	}
	return levelIndexFor(score) >= want
}
