// Package quiz holds the quiz data model and the normalization rules that make
// a raw quiz record publishable as a Telegram quiz poll.
//
// Telegram quiz poll limits enforced by Normalize:
//   - question: 1-300 characters
//   - options: 2-10 entries, each 1-100 characters
//   - explanation: 0-200 characters
//
// Characters are counted as Unicode code points.
package quiz
