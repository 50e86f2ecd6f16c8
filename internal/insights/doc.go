// Package insights is the progressive disclosure controller behind the
// page insights view.
//
// A Detail owns everything one opened page needs:
//   - the primary page fetch, classified as a ViewState
//   - a Cursor that pages through posts one request at a time
//   - an ExpansionCache that fetches each post's comments at most once
//   - a Gate that fires the entrance transition on first population
//
// All state is mutated from the Bubble Tea update loop only. Fetches run as
// tea.Cmds and come back as messages tagged with the Detail's instance
// token, so results for a page the user already left are dropped.
package insights
