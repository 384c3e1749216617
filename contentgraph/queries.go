package contentgraph

import (
	"fmt"

	"github.com/foomo/contentgraph-site/service/vo"
)

const pageIndexFields = `
  __typename
  id
  uri
  slug
  title
  menuOrder
  parent {
    node {
      id
      slug
      uri
      ... on Page {
        title
      }
    }
  }
`

const pageArchiveFields = pageIndexFields + `
  featuredImage {
    node {
      altText
      sourceUrl
    }
  }
  children {
    edges {
      node {
        id
        slug
        uri
        ... on Page {
          title
        }
      }
    }
  }
`

const pageAllFields = pageArchiveFields + `
  content
  pocetnastranafields {
    heroImage {
      node {
        sourceUrl
      }
    }
    heroTitle
    heroText
  }
`

const allPagesTemplate = `
query AllPages {
  pages(first: 10000, where: { hasPassword: false }) {
    edges {
      node {
        %s
      }
    }
  }
}
`

var (
	QueryAllPagesIndex   = fmt.Sprintf(allPagesTemplate, pageIndexFields)
	QueryAllPagesArchive = fmt.Sprintf(allPagesTemplate, pageArchiveFields)
	QueryAllPages        = fmt.Sprintf(allPagesTemplate, pageAllFields)
)

var QueryPageByURI = `
query PageByUri($uri: ID!) {
  page(id: $uri, idType: URI) {
` + pageAllFields + `
  }
}
`

const QueryPageSEOByURI = `
query PageSEOByUri($uri: ID!) {
  page(id: $uri, idType: URI) {
    id
    seo {
      canonical
      metaDesc
      metaRobotsNofollow
      metaRobotsNoindex
      opengraphAuthor
      opengraphDescription
      opengraphModifiedTime
      opengraphPublishedTime
      opengraphPublisher
      opengraphTitle
      opengraphType
      readingTime
      title
      twitterDescription
      twitterTitle
      opengraphImage {
        sourceUrl
      }
      twitterImage {
        sourceUrl
      }
    }
  }
}
`

const QueryAllPosts = `
query AllPosts {
  posts(first: 10000, where: { hasPassword: false }) {
    edges {
      node {
        __typename
        id
        slug
        uri
        title
        date
        excerpt
      }
    }
  }
}
`

const QueryAllMenus = `
query AllMenus {
  menus {
    edges {
      node {
        id
        name
        slug
        locations
        menuItems(first: 1000) {
          edges {
            node {
              id
              parentId
              label
              path
              url
              title
            }
          }
        }
      }
    }
  }
}
`

var allPagesQueries = map[vo.QueryProfile]string{
	vo.QueryProfileIndex:   QueryAllPagesIndex,
	vo.QueryProfileArchive: QueryAllPagesArchive,
	vo.QueryProfileAll:     QueryAllPages,
}
