package anilist

const popularQuery = `
query ($page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(type: ANIME, sort: POPULARITY_DESC) {
      id
      title {
        romaji
        english
        native
      }
    }
  }
}
`

const detailQuery = `
query ($search: String) {
  Media(search: $search, type: ANIME) {
    id
    title {
      romaji
      english
    }
    description(asHtml: false)
    averageScore
    episodes
    status
    coverImage {
      large
      medium
    }
    siteUrl
  }
}
`

const pingQuery = `query { Page(page: 1, perPage: 1) { pageInfo { total } } }`
