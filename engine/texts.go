package engine

// Texts are the participant-facing strings of one language pack.
type Texts struct {
	Start          string `yaml:"start"`
	Experiment     string `yaml:"experiment"`
	Continue       string `yaml:"continue"`
	Break          string `yaml:"break"`
	Finish         string `yaml:"finish"`
	Intro          string `yaml:"intro"`
	IntroFix       string `yaml:"intro_fix"`
	IntroCue       string `yaml:"intro_cue"`
	IntroArray     string `yaml:"intro_array"`
	IntroRetention string `yaml:"intro_retention"`
	IntroProbe     string `yaml:"intro_probe"`
	Practice0      string `yaml:"practice0"`
	Practice1      string `yaml:"practice1"`
	Practice2      string `yaml:"practice2"`
	Evaluation     string `yaml:"evaluation"`
}

// TextsFor returns the built-in pack for lang. Unknown languages get English.
func TextsFor(lang string) Texts {
	if lang == "sk" {
		return Texts{
			Start:          "Stlačte myš pre vygenerovanie pokusov",
			Experiment:     "Teraz začneme s úlohou.",
			Continue:       "Pokračujte stlačením myši ...",
			Break:          "Teraz si môžete tri minúty oddýchnuť.",
			Finish:         "Teraz ste úlohu dokončili!",
			Intro:          "Vitajte! V tomto experimente budeme testovať vašu schopnosť udržať niekoľko objektov v pracovnej pamäti. Experiment je zložený z viacerých pokusov. Pohľad majte stále upretý na čiernu bodku v strede obrazovky!",
			IntroFix:       "Každý pokus začne prázdnou obrazovkou. Zrak nechajte upretý na čiernej bodke zobrazenej nižšie.",
			IntroCue:       "Ďalej sa zobrazí šípka. Ak šípka smeruje doľava, počas tohto pokusu zamerajte pozornosť na ľavú stranu obrazovky. Ak šípka smeruje doprava, zamerajte pozornosť na pravú stranu obrazovky.",
			IntroArray:     "Ďalej uvidíte niekoľko farebných obdĺžnikov. Niektoré z nich budú červené. Pozornosť venujte iba červeným obdĺžnikom, len na strane obrazovky, ktorú naznačila šípka.",
			IntroRetention: "Po zmiznutí útvarov si udržte v pamäti orientáciu červených obdĺžnikov, ktoré ste práve videli. Držte oči pevne upreté na čiernej bodke a pokúste sa nežmurkať!",
			IntroProbe:     "Nakoniec sa objavia obdĺžniky znova. Ak sa orientácia obdĺžnika na označenej strane zmenila, stlačte ľavé tlačidlo. Ak je rovnaká, stlačte pravé tlačidlo.",
			Practice0:      "Poďme si to precvičiť. Pohľad držte na čiernej bodke, pozornosť na strane šípky, zapamätajte si len červené obdĺžniky.",
			Practice1:      "Teraz skúsme niekoľko zácvičných pokusov. Na konci každého pokusu sa pozastavíme.\n\nMôžeme?",
			Practice2:      "Teraz skúsme niekoľko zácvičných pokusov s použitím rýchlosti, akou bude experiment naozaj bežať.\n\nMôžeme?",
			Evaluation:     "Stlačte \"R\" na zopakovanie alebo \"C\" na pokračovanie...",
		}
	}
	return Texts{
		Start:          "Press the mouse to generate trials",
		Experiment:     "We will begin the task now.",
		Continue:       "Press the mouse to continue...",
		Break:          "You are now allowed to take up to three minutes break.",
		Finish:         "You have completed this task now!",
		Intro:          "Welcome! This experiment tests how many objects you can hold in working memory. It consists of many short trials. Keep your eyes on the black dot in the middle of the screen at all times!",
		IntroFix:       "Every trial starts with an empty screen. Keep looking at the black dot below.",
		IntroCue:       "Next an arrow appears. If it points left, attend to the left side of the screen during this trial. If it points right, attend to the right side. Keep your eyes on the dot!",
		IntroArray:     "Next you will see several colored rectangles. Some of them are red, the others blue or green. Only remember the red rectangles on the side the arrow pointed to.",
		IntroRetention: "After the rectangles disappear, keep the orientation of the red rectangles in mind. Keep your eyes on the dot and try not to blink!",
		IntroProbe:     "Finally the rectangles appear again. If the orientation of the rectangle on the cued side changed, press the left button. If it is the same, press the right button.",
		Practice0:      "Let's practice. Keep your eyes on the dot, attend to the side of the arrow, remember only the red rectangles. Left button: changed. Right button: same.",
		Practice1:      "Now a few practice trials. We will pause at the end of each one.\n\nReady?",
		Practice2:      "Now a few practice trials at the speed of the real experiment.\n\nReady?",
		Evaluation:     "Press \"R\" to repeat or \"C\" to continue...",
	}
}
