package tone

// Fixed lexical cue tables consumed by Score. These are plain data so the
// lists can grow without touching control flow. Matching is case-insensitive
// substring containment.

// sarcasmCues are multi-word phrases that read as sarcasm or mock outrage.
// Each match contributes +2.
var sarcasmCues = []string{
	"yeah right", "sure, jan", "this is fine", "clown show", "can't make this up",
	"can’t make this up", "what a joke", "of course", "nothing to see here",
}

// stanceWords are charged single words signaling a strong stance. Each match
// contributes +1.
var stanceWords = []string{
	"ban", "boycott", "grift", "corrupt", "finally", "nothingburger", "fearmongering",
	"shill", "propaganda", "cartel", "rigged", "scam", "fraud",
}

// slangOrIntensity are slang tokens and emoji that signal an informal,
// emotionally engaged register. Each hit contributes +0.5, capped at +1.5
// total.
var slangOrIntensity = []string{
	"lmao", "lol", "wtf", "omg", "af", "asf", "smh", "ffs", "bro", "dude", "fr", "idk",
	"shit", "fuck", "damn", "crap", "hell", "bs", "bullshit", "trash", "garbage",
	"🤡", "😂", "🙄", "🤷", "🔥",
}
