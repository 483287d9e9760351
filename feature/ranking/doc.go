// Package ranking answers leaderboard queries over stored character snapshots.
//
// Only valid accounts (non-empty credential, empty status) are ranked. Rows
// are ordered by the primary metric descending, the other metric descending,
// then uid ascending, so every query sees one total order.
//
// Queries:
//   - GroupRank: one character among a list of uids, unpaginated.
//   - GlobalRank: one page of a character's ranking plus the total count.
//   - SelfRank: 1 + the number of rows strictly ahead; nil when absent.
//   - TopWithSelf: a page plus the caller's position, appended when outside it.
//   - TotalRank / GroupTotalRank: accounts by the sum of scores at or above a floor.
//
// Service caches global and total pages in redis and drops a character's
// pages when a refresh changes it.
package ranking
