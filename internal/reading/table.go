package reading

// hexagrams is keyed by trigram pair so every six-line pattern appears once.
var hexagrams = [...]Hexagram{
	{Number: 1, Name: "The Creative", Chinese: "乾", Upper: Heaven, Lower: Heaven, Judgment: "Supreme success through perseverance."},
	{Number: 2, Name: "The Receptive", Chinese: "坤", Upper: Earth, Lower: Earth, Judgment: "Devotion brings supreme success."},
	{Number: 3, Name: "Difficulty at the Beginning", Chinese: "屯", Upper: Water, Lower: Thunder, Judgment: "Perseverance furthers; appoint helpers."},
	{Number: 4, Name: "Youthful Folly", Chinese: "蒙", Upper: Mountain, Lower: Water, Judgment: "The fool seeks me; I do not seek the fool."},
	{Number: 5, Name: "Waiting", Chinese: "需", Upper: Water, Lower: Heaven, Judgment: "Sincerity brings brilliant success."},
	{Number: 6, Name: "Conflict", Chinese: "訟", Upper: Heaven, Lower: Water, Judgment: "Seek a great person; do not cross the great water."},
	{Number: 7, Name: "The Army", Chinese: "師", Upper: Earth, Lower: Water, Judgment: "Perseverance and a strong leader bring good fortune."},
	{Number: 8, Name: "Holding Together", Chinese: "比", Upper: Water, Lower: Earth, Judgment: "Inquire of the oracle once more; examine yourself."},
	{Number: 9, Name: "Small Taming", Chinese: "小畜", Upper: Wind, Lower: Heaven, Judgment: "Dense clouds, no rain from the western region."},
	{Number: 10, Name: "Treading", Chinese: "履", Upper: Heaven, Lower: Lake, Judgment: "Treading upon the tiger's tail; it does not bite."},
	{Number: 11, Name: "Peace", Chinese: "泰", Upper: Earth, Lower: Heaven, Judgment: "The small departs, the great approaches."},
	{Number: 12, Name: "Standstill", Chinese: "否", Upper: Heaven, Lower: Earth, Judgment: "The great departs, the small approaches."},
	{Number: 13, Name: "Fellowship", Chinese: "同人", Upper: Heaven, Lower: Fire, Judgment: "Fellowship in the open; cross the great water."},
	{Number: 14, Name: "Great Possession", Chinese: "大有", Upper: Fire, Lower: Heaven, Judgment: "Supreme success."},
	{Number: 15, Name: "Modesty", Chinese: "謙", Upper: Earth, Lower: Mountain, Judgment: "Modesty brings success; the superior completes."},
	{Number: 16, Name: "Enthusiasm", Chinese: "豫", Upper: Thunder, Lower: Earth, Judgment: "Set up helpers and armies."},
	{Number: 17, Name: "Following", Chinese: "隨", Upper: Lake, Lower: Thunder, Judgment: "Supreme success; perseverance furthers."},
	{Number: 18, Name: "Work on the Decayed", Chinese: "蠱", Upper: Mountain, Lower: Wind, Judgment: "Cross the great water; three days before and after."},
	{Number: 19, Name: "Approach", Chinese: "臨", Upper: Earth, Lower: Lake, Judgment: "Great success through perseverance."},
	{Number: 20, Name: "Contemplation", Chinese: "觀", Upper: Wind, Lower: Earth, Judgment: "Ablution, not yet the offering; confidence inspires."},
	{Number: 21, Name: "Biting Through", Chinese: "噬嗑", Upper: Fire, Lower: Thunder, Judgment: "Success; it furthers to let justice be administered."},
	{Number: 22, Name: "Grace", Chinese: "賁", Upper: Mountain, Lower: Fire, Judgment: "Grace brings success in small matters."},
	{Number: 23, Name: "Splitting Apart", Chinese: "剝", Upper: Mountain, Lower: Earth, Judgment: "It does not further to go anywhere."},
	{Number: 24, Name: "Return", Chinese: "復", Upper: Earth, Lower: Thunder, Judgment: "Success. Going out and coming in without error."},
	{Number: 25, Name: "Innocence", Chinese: "無妄", Upper: Heaven, Lower: Thunder, Judgment: "Supreme success through perseverance."},
	{Number: 26, Name: "Great Taming", Chinese: "大畜", Upper: Mountain, Lower: Heaven, Judgment: "Perseverance furthers; cross the great water."},
	{Number: 27, Name: "Nourishment", Chinese: "頤", Upper: Mountain, Lower: Thunder, Judgment: "Perseverance brings good fortune."},
	{Number: 28, Name: "Great Excess", Chinese: "大過", Upper: Lake, Lower: Wind, Judgment: "The ridgepole sags. Furthers to have somewhere to go."},
	{Number: 29, Name: "The Abysmal", Chinese: "坎", Upper: Water, Lower: Water, Judgment: "Sincerity brings success of the heart."},
	{Number: 30, Name: "The Clinging", Chinese: "離", Upper: Fire, Lower: Fire, Judgment: "Perseverance furthers; care for the cow."},
	{Number: 31, Name: "Influence", Chinese: "咸", Upper: Lake, Lower: Mountain, Judgment: "Success. Perseverance furthers; take a wife."},
	{Number: 32, Name: "Duration", Chinese: "恆", Upper: Thunder, Lower: Wind, Judgment: "Success. Perseverance furthers."},
	{Number: 33, Name: "Retreat", Chinese: "遯", Upper: Heaven, Lower: Mountain, Judgment: "Success. Perseverance furthers in small matters."},
	{Number: 34, Name: "Great Power", Chinese: "大壯", Upper: Thunder, Lower: Heaven, Judgment: "Perseverance furthers."},
	{Number: 35, Name: "Progress", Chinese: "晉", Upper: Fire, Lower: Earth, Judgment: "The powerful prince receives horses in great number."},
	{Number: 36, Name: "Darkening of the Light", Chinese: "明夷", Upper: Earth, Lower: Fire, Judgment: "Perseverance in adversity furthers."},
	{Number: 37, Name: "The Family", Chinese: "家人", Upper: Wind, Lower: Fire, Judgment: "Perseverance of the woman furthers."},
	{Number: 38, Name: "Opposition", Chinese: "睽", Upper: Fire, Lower: Lake, Judgment: "Good fortune in small matters."},
	{Number: 39, Name: "Obstruction", Chinese: "蹇", Upper: Water, Lower: Mountain, Judgment: "The southwest furthers; seek the great person."},
	{Number: 40, Name: "Deliverance", Chinese: "解", Upper: Thunder, Lower: Water, Judgment: "The southwest furthers; return brings good fortune."},
	{Number: 41, Name: "Decrease", Chinese: "損", Upper: Mountain, Lower: Lake, Judgment: "Sincerity brings supreme good fortune."},
	{Number: 42, Name: "Increase", Chinese: "益", Upper: Wind, Lower: Thunder, Judgment: "Furthers to cross the great water."},
	{Number: 43, Name: "Breakthrough", Chinese: "夬", Upper: Lake, Lower: Heaven, Judgment: "One must resolutely make the matter known."},
	{Number: 44, Name: "Coming to Meet", Chinese: "姤", Upper: Heaven, Lower: Wind, Judgment: "The maiden is powerful; do not marry such a maiden."},
	{Number: 45, Name: "Gathering Together", Chinese: "萃", Upper: Lake, Lower: Earth, Judgment: "Success. The king approaches his temple."},
	{Number: 46, Name: "Pushing Upward", Chinese: "升", Upper: Earth, Lower: Wind, Judgment: "Supreme success; seek the great person."},
	{Number: 47, Name: "Oppression", Chinese: "困", Upper: Lake, Lower: Water, Judgment: "Success. Perseverance of the great person."},
	{Number: 48, Name: "The Well", Chinese: "井", Upper: Water, Lower: Wind, Judgment: "The town may change, but the well does not."},
	{Number: 49, Name: "Revolution", Chinese: "革", Upper: Lake, Lower: Fire, Judgment: "On your own day you are believed. Supreme success."},
	{Number: 50, Name: "The Cauldron", Chinese: "鼎", Upper: Fire, Lower: Wind, Judgment: "Supreme good fortune. Success."},
	{Number: 51, Name: "The Arousing", Chinese: "震", Upper: Thunder, Lower: Thunder, Judgment: "Shock brings success; laughing words."},
	{Number: 52, Name: "Keeping Still", Chinese: "艮", Upper: Mountain, Lower: Mountain, Judgment: "Keeping still. No blame."},
	{Number: 53, Name: "Development", Chinese: "漸", Upper: Wind, Lower: Mountain, Judgment: "The maiden is given in marriage. Perseverance furthers."},
	{Number: 54, Name: "The Marrying Maiden", Chinese: "歸妹", Upper: Thunder, Lower: Lake, Judgment: "Undertakings bring misfortune."},
	{Number: 55, Name: "Abundance", Chinese: "豐", Upper: Thunder, Lower: Fire, Judgment: "Success. The king attains abundance."},
	{Number: 56, Name: "The Wanderer", Chinese: "旅", Upper: Fire, Lower: Mountain, Judgment: "Success through smallness. Perseverance furthers."},
	{Number: 57, Name: "The Gentle", Chinese: "巽", Upper: Wind, Lower: Wind, Judgment: "Small success. Furthers to have somewhere to go."},
	{Number: 58, Name: "The Joyous", Chinese: "兌", Upper: Lake, Lower: Lake, Judgment: "Success. Perseverance furthers."},
	{Number: 59, Name: "Dispersion", Chinese: "渙", Upper: Wind, Lower: Water, Judgment: "Success. The king approaches his temple."},
	{Number: 60, Name: "Limitation", Chinese: "節", Upper: Water, Lower: Lake, Judgment: "Success. Galling limitation must not be persevered in."},
	{Number: 61, Name: "Inner Truth", Chinese: "中孚", Upper: Wind, Lower: Lake, Judgment: "Pigs and fishes. Good fortune. Cross the great water."},
	{Number: 62, Name: "Small Excess", Chinese: "小過", Upper: Thunder, Lower: Mountain, Judgment: "Success in small matters. The flying bird brings the message."},
	{Number: 63, Name: "After Completion", Chinese: "既濟", Upper: Water, Lower: Fire, Judgment: "Success in small matters. Perseverance furthers."},
	{Number: 64, Name: "Before Completion", Chinese: "未濟", Upper: Fire, Lower: Water, Judgment: "Success. The small fox nearly completed the crossing."},
}
