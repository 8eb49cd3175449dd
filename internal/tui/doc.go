/*
Package tui implements the interactive report viewer.

The viewer follows the Bubble Tea Model-Update-View pattern. The rendered
report lives in a scrollable viewport; the domain-detail table is paginated
by the analysis session, so paging re-renders the report around the new page.

Collection runs off the event loop: a refresh returns a tea.Cmd that calls
the configured Refresh function and delivers a reportMsg or errMsg.
*/
package tui
